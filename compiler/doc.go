// Package compiler lays out basic blocks of control flow graphs.
//
// Process of block layout:
//
//	Description File (yaml, hcl) ->
//		cfgfile ->
//	Control Flow Graph (cfg) ->
//		sched ->
//	Block Schedule (order, ranks) ->
//		emit ->
//	Assembly Text
//
// The schedule decides which control transfers fall through
// and which blocks need a label.
package compiler
