package domain

// Collection is a registered document source: a directory indexed under a name.
type Collection struct {
	Name     string
	Path     string
	Glob     string
	DocCount int
}

// Document is an indexed document belonging to a collection.
type Document struct {
	Collection string
	Path       string // path relative to the collection root
	Title      string
	Content    string
	Hash       string // content hash, used to skip unchanged files on reindex
}
