package model

import "time"

// College accepts admission applications for the courses it offers.
type College struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Courses   []string  `json:"courses"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

// OffersCourse reports whether course is in the college's catalogue.
func (c *College) OffersCourse(course string) bool {
	for _, offered := range c.Courses {
		if offered == course {
			return true
		}
	}
	return false
}

// Application is an admission inquiry. ReferenceID is what the applicant
// quotes in follow-ups; it is shown back to them exactly as stored.
type Application struct {
	ID          string    `json:"id"`
	ReferenceID string    `json:"referenceId"`
	CollegeID   string    `json:"collegeId"`
	Name        string    `json:"name"`
	DOB         string    `json:"dob"`
	FatherName  string    `json:"fatherName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	Courses     []string  `json:"courses"`
	CreatedAt   time.Time `json:"createdAt"`
}
