package dto

type UserUpdate struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=255"`
	Role     *string `json:"role" validate:"omitempty,oneof=ADMIN MAINTAINER REPORTER"`
}
