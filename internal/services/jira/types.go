package jira

import "storyloader/internal/story"

// User is the account behind the configured credentials.
type User struct {
	Name        string
	DisplayName string
	Email       string
}

// Project summarizes a tracker project.
type Project struct {
	Key         string
	Name        string
	Description string
	Lead        string
	IssueTypes  []string
}

// Epic is an existing epic issue.
type Epic struct {
	Key     string
	Summary string
	Status  string
}

// IssueFields carries the provider-facing fields of a story issue.
type IssueFields struct {
	Summary     string
	Description string
	Priority    string
	StoryPoints int
}

// FieldsFromStory maps a normalized story onto provider fields.
func FieldsFromStory(s story.Story) IssueFields {
	return IssueFields{
		Summary:     s.Title,
		Description: s.Description,
		Priority:    MapPriority(s.Priority),
		StoryPoints: s.StoryPoints,
	}
}

// MapPriority returns the provider priority name. Critical and Blocker map to
// Highest; unset priorities map to "".
func MapPriority(p story.Priority) string {
	switch p {
	case story.PriorityCritical, story.PriorityBlocker:
		return "Highest"
	case story.PriorityHigh, story.PriorityMedium, story.PriorityLow:
		return string(p)
	default:
		return ""
	}
}

type userPayload struct {
	Name         string `json:"name"`
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

func (u userPayload) toUser() User {
	return User{
		Name:        firstNonEmpty(u.Name, u.AccountID),
		DisplayName: u.DisplayName,
		Email:       u.EmailAddress,
	}
}

type projectPayload struct {
	Key         string       `json:"key"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Lead        *userPayload `json:"lead"`
	IssueTypes  []struct {
		Name string `json:"name"`
	} `json:"issueTypes"`
}

func (p projectPayload) toProject() Project {
	project := Project{Key: p.Key, Name: p.Name, Description: p.Description}
	if p.Lead != nil {
		project.Lead = p.Lead.DisplayName
	}
	for _, it := range p.IssueTypes {
		project.IssueTypes = append(project.IssueTypes, it.Name)
	}
	return project
}

type searchPayload struct {
	StartAt int `json:"startAt"`
	Total   int `json:"total"`
	Issues  []struct {
		Key    string `json:"key"`
		Fields struct {
			Summary string `json:"summary"`
			Status  struct {
				Name string `json:"name"`
			} `json:"status"`
		} `json:"fields"`
	} `json:"issues"`
}

type createdPayload struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}
