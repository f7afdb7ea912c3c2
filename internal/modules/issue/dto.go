package issue

import "fixhub/internal/domain"

type CreateIssueRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

type CancelIssueRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type IssueDetail struct {
	domain.Issue
	Timeline []domain.TimelineEntry `json:"timeline"`
}
