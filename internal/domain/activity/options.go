package activity

// ListOptions provides filtering options for listing team activity.
type ListOptions struct {
	ProjectID      string
	OrganizationID string
	Type           *Type
	Limit          int
	Offset         int
}
