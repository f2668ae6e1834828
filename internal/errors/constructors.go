package errors

// Convenience functions for common error patterns

// Module errors

func ModuleNotFound(module string, cause error) *EneratorError {
	return Wrap(cause, CategoryModuleNotFound, SeverityError, "page module not found").
		WithContext("module", module)
}

func InvalidPageModule(module, reason string, cause error) *EneratorError {
	return Wrap(cause, CategoryInvalidModule, SeverityError, "invalid page module").
		WithContext("module", module).
		WithContext("reason", reason)
}

func RenderFailed(module string, cause error) *EneratorError {
	return Wrap(cause, CategoryRender, SeverityError, "page render failed").
		WithContext("module", module)
}

// Sitemap errors

func SitemapCorrupt(path string, cause error) *EneratorError {
	return Wrap(cause, CategorySitemap, SeverityWarning, "sitemap is corrupt, treating as empty").
		WithContext("path", path)
}

func SitemapWriteFailed(path string, cause error) *EneratorError {
	return Wrap(cause, CategorySitemap, SeverityFatal, "sitemap write failed").
		WithContext("path", path)
}

// HTTP lookups

func NotFound(path string) *EneratorError {
	return New(CategoryNotFound, SeverityInfo, "not found").
		WithContext("path", path)
}

// Config errors

func ConfigInvalid(path string, cause error) *EneratorError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration invalid").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *EneratorError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Filesystem errors

func FileSystemError(operation, path string, cause error) *EneratorError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "filesystem operation failed").
		WithContext("operation", operation).
		WithContext("path", path)
}

// Internal errors

func InternalError(message string, cause error) *EneratorError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
