package textutil

// Field weights shared by the search and similarity engines, per
// spec.md §4.5/§4.6. Lifted from the original implementation's
// index/weights.rs so both engines read from one source of truth.
const (
	TitleWeight = 2.0
	TagsWeight  = 1.5
	BodyWeight  = 1.0
)
