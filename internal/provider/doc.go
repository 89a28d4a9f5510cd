// Package provider holds the catalog of authentication providers the tool
// can wire into a project.
//
// A provider is described by a Descriptor: its identifier, the environment
// keys its generated code reads, the module requirements its code imports,
// and a pure generator producing the source files to install. Built-in
// descriptors for auth0, clerk, and firebase ship with the tool; callers may
// register their own through a Registry.
package provider
