package auth

// publicPaths lists URL paths whose requests are never inspected for a
// session: infrastructure endpoints and the endpoints that create one.
var publicPaths = map[string]bool{
	"/health":        true,
	"/health/db":     true,
	"/metrics":       true,
	"/auth/register": true,
	"/auth/login":    true,
}

// IsPublicPath reports whether requests to path skip session parsing.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
