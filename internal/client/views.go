package client

import "ticketdesk/internal/desk"

// TicketsByCategory returns the category's tickets, newest date first.
func (c *Container) TicketsByCategory(categoryID string) []desk.Ticket {
	return desk.TicketsByCategory(c.State(), categoryID)
}

// TicketsByStudent returns the student's tickets, newest date first.
func (c *Container) TicketsByStudent(studentID string) []desk.Ticket {
	return desk.TicketsByStudent(c.State(), studentID)
}

func (c *Container) StudentByID(id string) (desk.Student, bool) {
	return desk.StudentByID(c.State(), id)
}

func (c *Container) CategoryByID(id string) (desk.Category, bool) {
	return desk.CategoryByID(c.State(), id)
}

// StudentsByIDs resolves ids in order, skipping unknown ones.
func (c *Container) StudentsByIDs(ids []string) []desk.Student {
	return desk.StudentsByIDs(c.State(), ids)
}
