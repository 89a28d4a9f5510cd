// Package platform classifies the hosting platform of a generated server
// project and carries per-platform metadata used by the scaffolding pipeline.
//
// Detection is a pure function over the presence and content of well-known
// configuration files in the project root (fly.toml, vercel.json,
// netlify.toml, render.yaml). It never mutates the project and has no failure
// mode beyond returning Unknown; the pipeline decides what to do with an
// unclassifiable project.
package platform
