// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"
)

// UserProfile is a beneficiary profile in the user directory.
// The phone number is the document key and is never reassigned.
type UserProfile struct {
	PhoneNumber     string    `json:"phone_number" firestore:"phoneNumber"`                    // Primary key; stable identity of the beneficiary.
	Name            string    `json:"name" firestore:"name"`                                   // Display name collected at registration.
	DisabilityType  string    `json:"disability_type" firestore:"disabilityType"`              // Disability category tag, used as a targeting filter.
	State           string    `json:"state" firestore:"state"`                                 // State of residence, used as a targeting filter.
	District        string    `json:"district" firestore:"district"`                           // District of residence, used as a targeting filter.
	PushTokens      []string  `json:"push_tokens" firestore:"pushTokens"`                      // Device push tokens; maintained as a set, no duplicates after any write.
	LastTokenUpdate time.Time `json:"last_token_update,omitempty" firestore:"lastTokenUpdate"` // Timestamp of the last token registration.
	CreatedAt       time.Time `json:"created_at" firestore:"createdAt"`                        // Timestamp of when the profile was registered.
	UpdatedAt       time.Time `json:"updated_at" firestore:"updatedAt"`                        // Timestamp of the last profile modification.
}

// HasTokens reports whether the profile has at least one registered device.
func (u *UserProfile) HasTokens() bool {
	return len(u.PushTokens) > 0
}
