// Package wpdb reads the mirror of the WordPress schema that this service
// authenticates against.
//
// The service never writes to the host schema; everything here is a read.
// Three rows matter for authentication: the user row, the capabilities
// usermeta entry (which roles a user holds), and the user_roles option blob
// (which capabilities each role grants). A fourth query serves content
// metadata to the shared-state layer.
//
// Two backends exist: MySQL for the real host database and SQLite for local
// mirror files and tests. Both run the same SQL through database/sql.
// WordPress stores the role and capability structures PHP-serialized; the
// decoders in phpser.go unpack them.
package wpdb
