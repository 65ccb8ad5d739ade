package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

// Student represents an enrolled learner. StudentID is the external,
// opaque identifier used in upload requests and object keys; it is
// distinct from the Mongo document id.
type Student struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudentID string             `bson:"studentId" json:"studentId"` // Should be unique
	FullName  string             `bson:"fullName" json:"fullName"`
	Email     string             `bson:"email" json:"email"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Enrollment links a student to a batch. It carries a denormalized copy of
// the student's name captured at enrollment time, which acts as the
// secondary directory when the student record itself is missing.
type Enrollment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudentID   string             `bson:"studentId" json:"studentId"`
	BatchID     string             `bson:"batchId" json:"batchId"`
	StudentName string             `bson:"studentName" json:"studentName"`
	EnrolledAt  time.Time          `bson:"enrolledAt" json:"enrolledAt"`
}
