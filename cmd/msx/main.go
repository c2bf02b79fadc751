/*
This file is part of the msx water-quality engine.

msx is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

msx is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
GNU General Public License for more details.
*/

// Command msx is a command-line interface for the multi-species
// pipe-network water-quality engine.
package main

import (
	"fmt"
	"os"

	"github.com/watermsx/msx"
	"github.com/watermsx/msx/cli"
)

func main() {
	cfg := cli.NewCfg(demoNetwork, nil)
	if err := cfg.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// demoNetwork builds a minimal two-junction, single-pipe network with
// one decaying bulk species, standing in for the topology and
// chemistry an embedding application would otherwise load from its own
// format (see cli.RunConfig's doc comment).
func demoNetwork(proj *msx.Project) error {
	if _, err := proj.AddNode("N1"); err != nil {
		return err
	}
	if _, err := proj.AddNode("N2"); err != nil {
		return err
	}
	if _, err := proj.AddLink("P1", "N1", "N2", 1000, 1, 100); err != nil {
		return err
	}
	if _, err := proj.AddSpecies("Chlorine", msx.BULK, "MG", 0.01, 0.001); err != nil {
		return err
	}
	if _, err := proj.AddCoefficient(msx.CoeffConstant, "K", 0.5); err != nil {
		return err
	}
	if err := proj.AddExpression(msx.ExprPipe, msx.RATE, "Chlorine", "-K*Chlorine"); err != nil {
		return err
	}
	if err := proj.AliasTankToPipe("Chlorine"); err != nil {
		return err
	}
	if err := proj.AddQuality(msx.NodeScope, "Chlorine", 1.0, "N1"); err != nil {
		return err
	}
	if err := proj.AddQuality(msx.NodeScope, "Chlorine", 1.0, "N2"); err != nil {
		return err
	}
	if err := proj.AddQuality(msx.LinkScope, "Chlorine", 1.0, "P1"); err != nil {
		return err
	}
	if err := proj.SetReport(msx.NodeScope, "N2", 4); err != nil {
		return err
	}
	return nil
}
