// Package main is the entry point for the lolrank CLI, which extracts match
// features from LoL esports game logs and maintains Elo power rankings.
package main

import "github.com/chakrakan/lol-esports-predictions/cmd"

func main() {
	cmd.Execute()
}
