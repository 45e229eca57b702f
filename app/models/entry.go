package models

func (e *BlogEntry) Validate() error {
	return validate.Struct(e)
}

// HasTag reports whether the entry is tagged with tag.
func (e *BlogEntry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
