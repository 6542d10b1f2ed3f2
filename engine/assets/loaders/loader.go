package loaders

import (
	"github.com/spaghettifunk/marionette/engine/resources"
)

// Loader turns a file on disk into a typed resource.
type Loader interface {
	Load(path string) (*resources.Resource, error)
}
