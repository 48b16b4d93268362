package port

type FileWalker interface {
	Expand(patterns []string) ([]string, error)
}
