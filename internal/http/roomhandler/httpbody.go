package roomhandler

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

type ListSessionsQuery struct {
	RoomID string `form:"room_id"`
	Limit  int    `form:"limit,default=10"  binding:"gte=0,lte=100"`
	Offset int    `form:"offset,default=0"  binding:"gte=0"`
} // @name ListSessionsQuery

type HealthResponse struct {
	Status      string `json:"status"      example:"ok"`
	Connections int    `json:"connections" example:"3"`
	Rooms       int    `json:"rooms"       example:"1"`
} // @name HealthResponse
