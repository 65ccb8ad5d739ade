package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecordingRef is the persisted pointer from a session document to an
// uploaded recording object. The actual bytes live in S3; this is only the
// metadata the session-metadata collaborator stores after a successful
// upload.
type RecordingRef struct {
	S3Key      string    `bson:"s3Key" json:"s3Key"`
	Size       int64     `bson:"size" json:"size"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

// Session represents one delivered class session within a batch.
type Session struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BatchID    string             `bson:"batchId" json:"batchId"`
	SessionNo  string             `bson:"sessionNo" json:"sessionNo"`
	Title      string             `bson:"title,omitempty" json:"title,omitempty"`
	Recordings []RecordingRef     `bson:"recordings,omitempty" json:"recordings,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
