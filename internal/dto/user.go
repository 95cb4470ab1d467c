package dto

// CreateUserRequest is the body for POST /api/users (form or JSON).
type CreateUserRequest struct {
	Username string `form:"username" json:"username" binding:"required,notblank"`
}

// UserPath binds the :_id path segment.
type UserPath struct {
	ID string `uri:"_id" binding:"required,objectid"`
}

// CreateUserResponse is returned after a user is created.
type CreateUserResponse struct {
	Username string `json:"username"`
	ID       string `json:"_id"`
}

// UserSummary is one entry of GET /api/users.
type UserSummary struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}
