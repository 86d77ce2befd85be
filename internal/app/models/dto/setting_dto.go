package dto

// RegistrationSettingResponse is the current registration toggle
type RegistrationSettingResponse struct {
	Open    bool  `json:"open" example:"false"`
	Version int64 `json:"version" example:"3"`
}

// UpdateRegistrationRequest changes the toggle when Version is still current
type UpdateRegistrationRequest struct {
	Open    *bool `json:"open" binding:"required"`
	Version int64 `json:"version" binding:"required,min=1"`
}
