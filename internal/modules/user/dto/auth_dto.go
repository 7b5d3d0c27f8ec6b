package dto

// RegisterInput mirrors the original signup contract: local-format mobile
// numbers only (10 digits starting with 09).
type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required,len=10,startswith=09,numeric"`
	City     string `json:"city" binding:"required"`
}

type SigninInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type AuthResponse struct {
	UID     string `json:"uid"`
	Token   string `json:"token"`
	Expired int64  `json:"expired"`
}
