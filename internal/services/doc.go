// Package services resolves rooty's named platform services.
//
// A Map lists the services by short name and Class; a Catalog maps each
// Class to its constructor. The Provider binds every service in a
// container under "wp.{name}" and the Hub itself under "wp". The Hub walks
// a name through Registered, Bound and Resolved, reporting exactly which
// step failed:
//
//	res := hub.Lookup("caps")
//	switch res.Status {
//	case services.Found:
//	    caps := res.Service.(*capabilities.Service)
//	case services.Unbound:
//	    log.Printf("bind %s first", res.Key)
//	}
//
// Typed accessors (Conflicts, Caps, Hooks) cover the stock services, and
// View offers introspection that never instantiates anything.
package services
