package domain

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleAdmin   Role = "ADMIN"
	RoleCoach   Role = "COACH"
	RoleTrainee Role = "TRAINEE"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoach, RoleTrainee:
		return true
	}
	return false
}

// User represents a user in the system (admin, coach or trainee).
type User struct {
	ID           string `bson:"_id" json:"id"`
	Email        string `bson:"email" json:"email"` // Used for login, unique
	PasswordHash string `bson:"passwordHash" json:"-"`
	Name         string `bson:"name" json:"name"`
	Role         Role   `bson:"role" json:"role"`

	// --- Trainee-specific ---
	CoachID *string `bson:"coachId,omitempty" json:"coachId,omitempty"` // Who coaches this trainee
	Points  int     `bson:"points" json:"points"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}

func (u *User) IsTrainee() bool {
	return u.Role == RoleTrainee
}

// CoachedBy reports whether coachID is this trainee's coach.
func (u *User) CoachedBy(coachID string) bool {
	return u.CoachID != nil && *u.CoachID == coachID
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool   { return a.Role == RoleAdmin }
func (a Actor) IsCoach() bool   { return a.Role == RoleCoach }
func (a Actor) IsTrainee() bool { return a.Role == RoleTrainee }
