package models

import "time"

// Election publicity constants
const (
	PublicityPrivate = "PRIVATE"
	PublicityVoter   = "VOTER"
	PublicityPublic  = "PUBLIC"
)

// Election status constants (derived, never stored)
const (
	StatusUpcoming = "UPCOMING"
	StatusOngoing  = "ONGOING"
	StatusPaused   = "PAUSED"
	StatusEnded    = "ENDED"
)

// Voter status constants
const (
	VoterAdded    = "ADDED"
	VoterInvited  = "INVITED"
	VoterAccepted = "ACCEPTED"
	VoterDeclined = "DECLINED"
)

// Reserved partylist
const (
	IndependentName    = "Independent"
	IndependentAcronym = "IND"
)

// Request types

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateElectionRequest struct {
	Name            string    `json:"name" validate:"required,max=100"`
	Slug            string    `json:"slug" validate:"required,slug,max=64"`
	Description     string    `json:"description" validate:"max=2000"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required"`
	VotingHourStart *int      `json:"voting_hour_start" validate:"omitempty,min=0,max=23"`
	VotingHourEnd   *int      `json:"voting_hour_end" validate:"omitempty,min=1,max=24"`
	Publicity       string    `json:"publicity" validate:"omitempty,oneof=PRIVATE VOTER PUBLIC"`
	RealtimeVisible bool      `json:"realtime_visible"`
}

// UpdateElectionRequest carries only the fields to change
type UpdateElectionRequest struct {
	Name            *string    `json:"name" validate:"omitempty,min=1,max=100"`
	Slug            *string    `json:"slug" validate:"omitempty,slug,max=64"`
	Description     *string    `json:"description" validate:"omitempty,max=2000"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	VotingHourStart *int       `json:"voting_hour_start" validate:"omitempty,min=0,max=23"`
	VotingHourEnd   *int       `json:"voting_hour_end" validate:"omitempty,min=1,max=24"`
	Publicity       *string    `json:"publicity" validate:"omitempty,oneof=PRIVATE VOTER PUBLIC"`
	RealtimeVisible *bool      `json:"realtime_visible"`
}

type AddCommissionerRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PartylistRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Acronym     string `json:"acronym" validate:"required,max=16"`
	Description string `json:"description" validate:"max=2000"`
}

type PositionRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
	Min         int    `json:"min" validate:"min=0"`
	Max         int    `json:"max" validate:"min=1"`
}

type ReorderPositionsRequest struct {
	PositionIDs []string `json:"position_ids" validate:"required,min=1,dive,required"`
}

type PlatformInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type CandidateRequest struct {
	Slug        string          `json:"slug" validate:"required,slug,max=64"`
	FirstName   string          `json:"first_name" validate:"required,max=100"`
	MiddleName  string          `json:"middle_name" validate:"max=100"`
	LastName    string          `json:"last_name" validate:"required,max=100"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
	PositionID  string          `json:"position_id" validate:"required"`
	PartylistID string          `json:"partylist_id" validate:"required"`
	Platforms   []PlatformInput `json:"platforms" validate:"dive"`
}

type VoterFieldRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// field name -> value
type VoterRequest struct {
	Email string            `json:"email" validate:"required,email"`
	Field map[string]string `json:"field"`
}

type DeclineInvitationRequest struct {
	VoterID string `json:"voter_id" validate:"required"`
	Token   string `json:"token" validate:"required"`
}

type PositionVote struct {
	PositionID   string   `json:"position_id" validate:"required"`
	CandidateIDs []string `json:"candidate_ids"`
	Abstain      bool     `json:"abstain"`
}

type CastVoteRequest struct {
	Votes []PositionVote `json:"votes" validate:"required,min=1,dive"`
}

type CreateRoomRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=4000"`
}

type PostMessageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// Response types

type AuthResponse struct {
	Account Account `json:"account"`
	Token   string  `json:"token"`
}

type InviteVotersResponse struct {
	Invited int `json:"invited"`
}

type ImportSkip struct {
	Row    int    `json:"row"`
	Email  string `json:"email,omitempty"`
	Reason string `json:"reason"`
}

type ImportVotersResponse struct {
	Added   int          `json:"added"`
	Skipped []ImportSkip `json:"skipped"`
}

type CastVoteResponse struct {
	BallotID string    `json:"ballot_id"`
	CastAt   time.Time `json:"cast_at"`
}

type ElectionPreviewResponse struct {
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	Status         string `json:"status"`
	PositionCount  int    `json:"position_count"`
	CandidateCount int    `json:"candidate_count"`
	VoterCount     int    `json:"voter_count"`
	StartsIn       string `json:"starts_in"`
	EndsIn         string `json:"ends_in"`
}

// Domain types

type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	CreatedAt    time.Time `json:"created_at"`
}

type Election struct {
	ID              string     `json:"id"`
	Slug            string     `json:"slug"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	VotingHourStart int        `json:"voting_hour_start"`
	VotingHourEnd   int        `json:"voting_hour_end"`
	Publicity       string     `json:"publicity"`
	RealtimeVisible bool       `json:"realtime_visible"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"-"`
}

type Commissioner struct {
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Partylist struct {
	ID            string `json:"id"`
	ElectionID    string `json:"election_id"`
	Name          string `json:"name"`
	Acronym       string `json:"acronym"`
	Description   string `json:"description"`
	IsIndependent bool   `json:"is_independent"`
}

type Position struct {
	ID          string `json:"id"`
	ElectionID  string `json:"election_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	Min         int    `json:"min"`
	Max         int    `json:"max"`
}

type Platform struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Candidate struct {
	ID               string     `json:"id"`
	ElectionID       string     `json:"election_id"`
	PositionID       string     `json:"position_id"`
	PartylistID      string     `json:"partylist_id"`
	PartylistAcronym string     `json:"partylist_acronym"`
	Slug             string     `json:"slug"`
	FirstName        string     `json:"first_name"`
	MiddleName       string     `json:"middle_name"`
	LastName         string     `json:"last_name"`
	ImageURL         string     `json:"image_url"`
	Platforms        []Platform `json:"platforms"`
}

type VoterField struct {
	ID         string `json:"id"`
	ElectionID string `json:"election_id"`
	Name       string `json:"name"`
}

// Voter is one row of the merged roster, whatever its lifecycle status
type Voter struct {
	ID         string            `json:"id"`
	ElectionID string            `json:"election_id"`
	Email      string            `json:"email"`
	Status     string            `json:"status"`
	Field      map[string]string `json:"field"`
	Voted      bool              `json:"voted"`
	CreatedAt  time.Time         `json:"created_at"`
	InvitedAt  *time.Time        `json:"invited_at,omitempty"`
	AcceptedAt *time.Time        `json:"accepted_at,omitempty"`
}

type BallotPosition struct {
	Position   Position    `json:"position"`
	Candidates []Candidate `json:"candidates"`
}

type Ballot struct {
	Election  Election         `json:"election"`
	Positions []BallotPosition `json:"positions"`
	HasVoted  bool             `json:"has_voted"`
}

type MyVote struct {
	BallotID string         `json:"ballot_id"`
	CastAt   time.Time      `json:"cast_at"`
	Votes    []PositionVote `json:"votes"`
}

// Tally types

type CandidateTally struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Partylist   string `json:"partylist"`
	Votes       int    `json:"votes"`
}

type PositionTally struct {
	PositionID   string           `json:"position_id"`
	Name         string           `json:"name"`
	Candidates   []CandidateTally `json:"candidates"`
	AbstainCount int              `json:"abstain_count"`
	TotalVoted   int              `json:"total_voted"`
}

type Tally struct {
	ElectionID  string          `json:"election_id"`
	Positions   []PositionTally `json:"positions"`
	TotalVoters int             `json:"total_voters"`
	VotedCount  int             `json:"voted_count"`
	Turnout     float64         `json:"turnout"`
	ComputedAt  time.Time       `json:"computed_at"`
}

type FieldValueStats struct {
	Value      string `json:"value"`
	VoterCount int    `json:"voter_count"`
	VotedCount int    `json:"voted_count"`
}

type FieldStats struct {
	FieldID string            `json:"field_id"`
	Name    string            `json:"name"`
	Values  []FieldValueStats `json:"values"`
}

// Messaging types

type ChatRoom struct {
	ID             string    `json:"id"`
	ElectionID     string    `json:"election_id"`
	VoterAccountID string    `json:"voter_account_id"`
	VoterName      string    `json:"voter_name"`
	Title          string    `json:"title"`
	CreatedAt      time.Time `json:"created_at"`
	LastMessageAt  time.Time `json:"last_message_at"`
}

type ChatMessage struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	AccountID string    `json:"account_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
