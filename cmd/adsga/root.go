/*
 * root.go, part of adsga.
 *
 * Copyright 2021 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

// Version of adsga.
const Version = "0.1.0"

var (
	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "adsga",
		Short: "genetic algorithm search for adsorbates in frameworks",
		Long: fmt.Sprintf(`adsga (v%s)

Searches for low-energy configurations of adsorbate molecules in a framework
with a genetic algorithm. Each step is a sub-command: "parents" builds the
starting candidates, "inputs" writes the VASP inputs of the unrelaxed ones,
"update" reads back the relaxations, and "children" creates new candidates
from the relaxed population. VASP runs between the steps.`, Version),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}

	parentsCmd = &cobra.Command{
		Use:   "parents",
		Short: "Create the database and the starting candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, m, err := setup()
			if err != nil {
				return err
			}
			ids, err := runParents(cmd.Context(), conf, m)
			if err != nil {
				return err
			}
			log.Printf("Added %d starting candidates to %s", len(ids), conf.DB)
			return m.write(conf.MetricsFile)
		},
	}

	updateCmd = &cobra.Command{
		Use:   "update",
		Short: "Read the relaxations of the unrelaxed candidates into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, m, err := setup()
			if err != nil {
				return err
			}
			ids, err := runUpdate(cmd.Context(), conf, m, log.Default())
			if werr := m.write(conf.MetricsFile); err == nil {
				err = werr
			}
			if err != nil {
				return err
			}
			log.Printf("Updated %d candidates", len(ids))
			return nil
		},
	}

	childrenCmd = &cobra.Command{
		Use:   "children",
		Short: "Create new candidates from the relaxed population",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, m, err := setup()
			if err != nil {
				return err
			}
			ops, _, err := runChildren(cmd.Context(), conf, m, log.Default())
			if werr := m.write(conf.MetricsFile); err == nil {
				err = werr
			}
			if err != nil {
				return err
			}
			log.Printf("Created %d children out of %d attempts", len(ops), conf.N)
			return nil
		},
	}

	inputsCmd = &cobra.Command{
		Use:   "inputs",
		Short: "Write the VASP inputs of the unrelaxed candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, _, err := setup()
			if err != nil {
				return err
			}
			n, err := runInputs(cmd.Context(), conf, log.Default())
			if err != nil {
				return err
			}
			log.Printf("Wrote inputs for %d candidates", n)
			return nil
		},
	}

	plotCmd = &cobra.Command{
		Use:   "plot",
		Short: "Plot the raw scores of the relaxed candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, m, err := setup()
			if err != nil {
				return err
			}
			if err := runPlot(cmd.Context(), conf, m); err != nil {
				return err
			}
			return m.write(conf.MetricsFile)
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of adsga",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("adsga v%s\n", Version)
		},
	}
)

func init() {
	rootCmd.AddCommand(parentsCmd, updateCmd, childrenCmd, inputsCmd, plotCmd, versionCmd)
	setupFlags(rootCmd)
	setupParentFlags(parentsCmd)
	setupChildFlags(childrenCmd)
	setupInputFlags(inputsCmd)
	plotCmd.Flags().String("plot-file", "fitness.png", wrapString("the plot, the extension sets the format"))
}

func setup() (*Config, *runMetrics, error) {
	conf, err := getConfig()
	if err != nil {
		return nil, nil, err
	}
	log.Print("Configuration:\n", conf)
	return conf, newRunMetrics(), nil
}
