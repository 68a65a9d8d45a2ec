package cmd

// Authorizer decides whether actor holds node.
type Authorizer func(actor Actor, node string) bool

// ActorAuthorizer defers to the actor's own permission check.
func ActorAuthorizer(actor Actor, node string) bool {
	return actor != nil && actor.HasPermission(node)
}

// Authorize gates d for actor. Commands without a permission are open to
// everyone; a nil authorizer means ActorAuthorizer.
func Authorize(d *Descriptor, actor Actor, auth Authorizer) error {
	if d.Permission == "" {
		return nil
	}
	if auth == nil {
		auth = ActorAuthorizer
	}
	if !auth(actor, d.Permission) {
		return ErrPermissionDenied
	}
	return nil
}
