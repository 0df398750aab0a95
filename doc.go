// Package glrcore implements the runtime half of an incremental GLR
// parsing toolkit: a generalized-LR driver over a graph-structured stack,
// incremental reparsing against a previous tree, and cost-ranked error
// recovery.
//
// The package consumes a precompiled Language (parse table, lex tables,
// symbol metadata) and a source Input, and produces a Tree. It never
// builds parse tables itself — that is the job of a separate grammar
// compiler, out of scope here.
package glrcore
