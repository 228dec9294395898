package model

// User is an identity principal. Password always holds a bcrypt hash and
// never leaves the service in any serialized form.
type User struct {
	ID        string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Admin     bool   `json:"admin" bson:"admin"`
	FirstName string `json:"firstName" bson:"first_name" validate:"required,min=3,max=20"`
	LastName  string `json:"lastName" bson:"last_name" validate:"required,min=3,max=20"`
	UserName  string `json:"userName" bson:"user_name" validate:"required,min=3,max=20"`
	Password  string `json:"-" bson:"password"`
}

// UserUpdate carries a partial profile update. Nil/empty fields are left
// untouched; Password, when set, is a plaintext replacement to be hashed.
type UserUpdate struct {
	FirstName string `json:"firstName,omitempty" validate:"omitempty,min=3,max=20"`
	LastName  string `json:"lastName,omitempty" validate:"omitempty,min=3,max=20"`
	UserName  string `json:"userName,omitempty" validate:"omitempty,min=3,max=20"`
	Password  string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
}
