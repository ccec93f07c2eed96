// Package ast defines the statement tree rendered by dialect/sql.
//
// All types are plain data with exported fields. Statements are passed by
// pointer and treated as read-only while rendering. Operators, functions and
// join kinds are closed enums; each implements encoding.TextUnmarshaler so
// statement files can name them by their SQL spelling.
package ast
