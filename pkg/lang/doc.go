// Package lang implements the blocode program language: a maximal-munch
// lexer and a table-driven LR parser producing Commands.
//
// Pipeline: program text → Lex → Parse → []Command
package lang
