package desk

// DeleteStudent removes the student and strips its id from every ticket in
// the same snapshot. Tickets themselves are never deleted.
func DeleteStudent(doc Document, id string) Document {
	out := doc.Clone()
	students := make([]Student, 0, len(out.Students))
	for _, student := range out.Students {
		if student.ID != id {
			students = append(students, student)
		}
	}
	out.Students = students
	for i, ticket := range out.Tickets {
		if !ticket.HasStudent(id) {
			continue
		}
		kept := make([]string, 0, len(ticket.StudentIDs))
		for _, sid := range ticket.StudentIDs {
			if sid != id {
				kept = append(kept, sid)
			}
		}
		out.Tickets[i].StudentIDs = kept
	}
	return out
}

// DeleteCategory removes the category and moves its tickets to the fallback
// category in the same snapshot.
func DeleteCategory(doc Document, id string) Document {
	out := doc.Clone()
	categories := make([]Category, 0, len(out.Categories))
	for _, category := range out.Categories {
		if category.ID != id {
			categories = append(categories, category)
		}
	}
	out.Categories = categories
	target := reassignmentTarget(categories)
	for i, ticket := range out.Tickets {
		if ticket.Category == id {
			out.Tickets[i].Category = target
		}
	}
	return out
}

// reassignmentTarget prefers FallbackCategoryID. When the fallback itself is
// gone, the first remaining category keeps ticket references resolvable.
func reassignmentTarget(remaining []Category) string {
	for _, category := range remaining {
		if category.ID == FallbackCategoryID {
			return FallbackCategoryID
		}
	}
	if len(remaining) > 0 {
		return remaining[0].ID
	}
	return FallbackCategoryID
}
