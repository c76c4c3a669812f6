// Package config loads process-level settings for the animerec tools.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables. The result is validated before it is returned.
//
// File lookup order: the explicit path passed to Load, then the path in
// ANIMEREC_CONFIG, then the entries of DefaultConfigPaths.
//
// Environment variables: GROQ_API_KEY and MODEL_NAME are honoured for the
// completion service; every other setting uses the ANIMEREC_ prefix, for
// example ANIMEREC_INDEX_DIR or ANIMEREC_K. ANIMEREC_ variables win over the
// unprefixed ones.
package config
