package domain

import "time"

// Prescription is an uploaded prescription scan attached to an account.
// The object itself lives in S3 under S3Key; this record is the index entry.
type Prescription struct {
	PrescriptionID string     `json:"id" dynamodbav:"prescription_id"`
	UserID         string     `json:"user_id" dynamodbav:"user_id"`
	FileName       string     `json:"file_name" dynamodbav:"file_name"`
	S3Key          string     `json:"-" dynamodbav:"s3_key"`
	ContentType    string     `json:"content_type" dynamodbav:"content_type"`
	Size           int64      `json:"size" dynamodbav:"size"`
	Enable         bool       `json:"enable" dynamodbav:"enable"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt      time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time  `json:"updated" dynamodbav:"updated_at"`
}
