package dto

// SuggestLocationRequest captures POST /m/:slug/locations payload.
type SuggestLocationRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=255"`
	SuggestedBy string  `json:"suggestedBy" validate:"required,max=80"`
}

// VoteRequest names the voter backing a suggestion.
type VoteRequest struct {
	Voter string `json:"voter" validate:"required,max=80"`
}

// VoteResponse reports the suggestion's tally after the vote.
type VoteResponse struct {
	SuggestionID string `json:"suggestionId"`
	Votes        int    `json:"votes"`
	Counted      bool   `json:"counted"`
}
