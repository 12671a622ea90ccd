package dto

// CreateCourseRequest adds a course to the catalog
type CreateCourseRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	Description string `json:"description"`
	Duration    string `json:"duration" binding:"max=50" example:"40h"`
	Instructor  string `json:"instructor" binding:"max=120"`
}
