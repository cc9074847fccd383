// internal/models/poll.go
package models

import "time"

type Poll struct {
	ID             int64     `json:"id"`
	Question       string    `json:"question" validate:"required,min=3,max=500"`
	Options        []string  `json:"options" validate:"required,min=2,max=4,dive,required,max=200"`
	TargetAudience string    `json:"targetAudience" validate:"required,oneof=ALL ADMIN MANAGER HR EMPLOYEE"`
	CreatedByName  string    `json:"createdByName"`
	CreatedAt      time.Time `json:"createdAt"`
	IsActive       bool      `json:"isActive"`
}

type CreatePollRequest struct {
	Question       string   `json:"question" validate:"required,min=3,max=500"`
	Options        []string `json:"options" validate:"required,min=2,max=4,dive,required,max=200"`
	TargetAudience string   `json:"targetAudience" validate:"required,oneof=ALL ADMIN MANAGER HR EMPLOYEE"`
}

type Vote struct {
	PollID         int64     `json:"pollId"`
	VoterName      string    `json:"voterName"`
	SelectedOption string    `json:"selectedOption"`
	CreatedAt      time.Time `json:"createdAt"`
}

type VoteRequest struct {
	PollID         int64  `json:"pollId" validate:"required"`
	VoterName      string `json:"voterName" validate:"required"`
	SelectedOption string `json:"selectedOption" validate:"required"`
}

// PollResults is fetched as an aggregate, never derived from raw votes locally.
type PollResults struct {
	TotalVotes   int            `json:"totalVotes"`
	OptionCounts map[string]int `json:"optionCounts"`
}

func (p *Poll) VisibleTo(role string) bool {
	return p.TargetAudience == AudienceAll || p.TargetAudience == role
}

func (p *Poll) HasOption(option string) bool {
	for _, o := range p.Options {
		if o == option {
			return true
		}
	}
	return false
}

func (r *PollResults) CountFor(option string) int {
	if r.OptionCounts == nil {
		return 0
	}
	return r.OptionCounts[option]
}
