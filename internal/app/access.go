package app

import "github.com/raysh454/sitecheck/internal/model"

// Authorizer decides whether caller may read or act on rec.
type Authorizer interface {
	CanAccess(caller model.Caller, rec *model.TestRecord) bool
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(caller model.Caller, rec *model.TestRecord) bool

func (f AuthorizerFunc) CanAccess(caller model.Caller, rec *model.TestRecord) bool {
	return f(caller, rec)
}

// OwnerOrAdmin grants access to the record's owner and to admins.
var OwnerOrAdmin Authorizer = AuthorizerFunc(func(caller model.Caller, rec *model.TestRecord) bool {
	return caller.IsAdmin() || (caller.ID != "" && caller.ID == rec.Owner)
})
