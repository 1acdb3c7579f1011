package model

import "time"

// Organization groups users and surveys
type Organization struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
}

type UserRole string

const (
	RoleRespondent UserRole = "respondent"
	RoleCreator    UserRole = "creator"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "super_admin"
)

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
	UserInvited  UserStatus = "invited"
)

// User is an employee of an organization who may be assigned surveys
type User struct {
	ID                   string     `json:"id" bson:"_id"`
	OrganizationID       string     `json:"organization_id" bson:"organizationId"`
	FirstName            string     `json:"first_name" bson:"firstName"`
	LastName             string     `json:"last_name" bson:"lastName"`
	Email                string     `json:"email" bson:"email"`
	Department           string     `json:"department" bson:"department"`
	Role                 UserRole   `json:"role" bson:"role"`
	Status               UserStatus `json:"status" bson:"status"`
	HireDate             *time.Time `json:"hire_date,omitempty" bson:"hireDate,omitempty"`
	LastSurveyResponseAt *time.Time `json:"last_survey_response_at,omitempty" bson:"lastSurveyResponseAt,omitempty"`
	CreatedAt            time.Time  `json:"created_at" bson:"createdAt"`
}

// DisplayName is "First Last", falling back to the email
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}
