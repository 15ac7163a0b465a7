package strategy

// AnonymousName is the name NewServer registers [Anonymous] under.
const AnonymousName = "anonymous"

// Anonymous passes every request, so that a chain ending in it lets
// unauthenticated callers through unless authentication is required.
var Anonymous = Func(AnonymousName, func(c *Context, _ any, _ Options) { c.Pass() })
