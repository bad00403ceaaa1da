package config

import "errors"

var ErrMissingRepoLocator = errors.New("repository locator is required")
