/*
 * config.go, part of adsga.
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
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	chem "github.com/rmera/adsga"
	"github.com/rmera/adsga/ga"
	"github.com/rmera/adsga/qm"
)

// Config holds the settings of a run, from flags, environment (ADSGA_*) and
// an optional config file, in that order of precedence.
type Config struct {
	DB          string
	Framework   string
	Adsorbate   string
	PopSize     int
	NAds        int
	Mult        float64
	AdsPos      [3]float64
	CellScale   float64
	DirTemplate string
	N           int
	Num         int
	Seed        int64

	RattleWeight           float64
	RotationalWeight       float64
	RattleRotationalWeight float64
	PairingWeight          float64
	RattleStrength         float64
	RattleProp             float64
	RotateFraction         float64
	MinAngle               float64 //degrees

	MetricsFile string
	PlotFile    string

	Encut float64
	EDiff float64
	NSW   int
}

// setupFlags adds the persistent flags of every sub-command.
func setupFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("config", "", wrapString("config file (yaml, toml or json) with any of the keys below"))
	f.String("db", "gadb.db", wrapString("the candidate database"))
	f.String("dir-template", ga.DefaultDirTemplate, wrapString("run directory of each candidate, formatted with its confid"))
	f.Float64("mult", 1.4, wrapString("factor for the sum of covalent radii giving the minimum distance between atoms"))
	f.Int64("seed", 0, wrapString("seed for the random numbers, 0 uses the time"))
	f.String("metrics-file", "", wrapString("write prometheus metrics to this file (textfile collector format)"))
}

func setupParentFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("framework", "", wrapString("framework structure, POSCAR or extended XYZ with the cell"))
	f.String("adsorbate", "", wrapString("adsorbate molecule, XYZ or POSCAR"))
	f.Int("pop-size", 20, wrapString("number of starting candidates, also the population size"))
	f.Int("nads", 1, wrapString("copies of the adsorbate in each candidate"))
	f.String("ads-pos", "0,0,0", wrapString("origin of the placement box, in A, as x,y,z"))
	f.Float64("cell-scale", 3, wrapString("the placement box is the framework cell divided by this"))
}

func setupChildFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("n", 10, wrapString("number of children to try"))
	f.Int("num", 0, wrapString("offset for the configuration numbers in the progress messages"))
	f.Float64("rattle-weight", 1, wrapString("relative probability of the rattle mutation"))
	f.Float64("rotational-weight", 1, wrapString("relative probability of the rotational mutation"))
	f.Float64("rattlerotational-weight", 1, wrapString("relative probability of the combined rattle and rotational mutation"))
	f.Float64("pairing-weight", 2, wrapString("relative probability of the cut and splice pairing"))
	f.Float64("rattle-strength", 0.8, wrapString("maximum displacement of a molecule in the rattle mutation, in A"))
	f.Float64("rattle-prop", 0.4, wrapString("probability of moving each molecule in the rattle mutation"))
	f.Float64("rotate-fraction", 0.33, wrapString("fraction of the molecules rotated in the rotational mutation"))
	f.Float64("min-angle", 90, wrapString("minimum rotation angle in the rotational mutation, in degrees"))
}

func setupInputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64("encut", 400, wrapString("plane wave cutoff, in eV"))
	f.Float64("ediff", 1e-5, wrapString("electronic convergence criterion, in eV"))
	f.Int("nsw", 300, wrapString("maximum number of ionic steps"))
}

// initConfig loads the .env files, the environment and the config file, if any,
// and binds the flags of cmd.
func initConfig(cmd *cobra.Command) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("adsga")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", file, err)
		}
	}
	return nil
}

// parseVector reads 3 comma-separated numbers. An empty string gives the zero vector.
func parseVector(s string) ([3]float64, error) {
	var ret [3]float64
	if strings.TrimSpace(s) == "" {
		return ret, nil
	}
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return ret, fmt.Errorf("expected 3 comma-separated numbers, got %q", s)
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return ret, fmt.Errorf("in %q: %w", s, err)
		}
		ret[i] = v
	}
	return ret, nil
}

// getConfig reads the configuration from viper.
func getConfig() (*Config, error) {
	pos, err := parseVector(viper.GetString("ads-pos"))
	if err != nil {
		return nil, fmt.Errorf("ads-pos: %w", err)
	}
	conf := &Config{
		DB:          viper.GetString("db"),
		Framework:   viper.GetString("framework"),
		Adsorbate:   viper.GetString("adsorbate"),
		PopSize:     viper.GetInt("pop-size"),
		NAds:        viper.GetInt("nads"),
		Mult:        viper.GetFloat64("mult"),
		AdsPos:      pos,
		CellScale:   viper.GetFloat64("cell-scale"),
		DirTemplate: viper.GetString("dir-template"),
		N:           viper.GetInt("n"),
		Num:         viper.GetInt("num"),
		Seed:        viper.GetInt64("seed"),

		RattleWeight:           viper.GetFloat64("rattle-weight"),
		RotationalWeight:       viper.GetFloat64("rotational-weight"),
		RattleRotationalWeight: viper.GetFloat64("rattlerotational-weight"),
		PairingWeight:          viper.GetFloat64("pairing-weight"),
		RattleStrength:         viper.GetFloat64("rattle-strength"),
		RattleProp:             viper.GetFloat64("rattle-prop"),
		RotateFraction:         viper.GetFloat64("rotate-fraction"),
		MinAngle:               viper.GetFloat64("min-angle"),

		MetricsFile: viper.GetString("metrics-file"),
		PlotFile:    viper.GetString("plot-file"),

		Encut: viper.GetFloat64("encut"),
		EDiff: viper.GetFloat64("ediff"),
		NSW:   viper.GetInt("nsw"),
	}
	if conf.DB == "" {
		return nil, fmt.Errorf("no database given")
	}
	if conf.DirTemplate == "" {
		conf.DirTemplate = ga.DefaultDirTemplate
	}
	if !strings.Contains(conf.DirTemplate, "%") || strings.Contains(fmt.Sprintf(conf.DirTemplate, 1), "%!") {
		return nil, fmt.Errorf("dir-template %q needs one integer verb for the confid, as in %q", conf.DirTemplate, ga.DefaultDirTemplate)
	}
	if conf.PlotFile == "" {
		conf.PlotFile = "fitness.png"
	}
	return conf, nil
}

// calc returns the VASP settings for the configuration.
func (C *Config) calc() *qm.Calc {
	Q := new(qm.Calc)
	Q.SetDefaults()
	if C.Encut > 0 {
		Q.Encut = C.Encut
	}
	if C.EDiff > 0 {
		Q.EDiff = C.EDiff
	}
	if C.NSW > 0 {
		Q.NSW = C.NSW
	}
	return Q
}

func (C *Config) minAngle() float64 {
	return C.MinAngle * chem.Deg2Rad
}

func (C *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "database: %s\n", C.DB)
	fmt.Fprintf(&b, "run directories: %s\n", C.DirTemplate)
	if C.Framework != "" {
		fmt.Fprintf(&b, "framework: %s adsorbate: %s (x%d)\n", C.Framework, C.Adsorbate, C.NAds)
		fmt.Fprintf(&b, "population: %d mult: %.2f box origin: %v cell scale: %.2f\n", C.PopSize, C.Mult, C.AdsPos, C.CellScale)
	}
	fmt.Fprintf(&b, "children: %d (from %d) weights rattle/rotational/rattlerotational/pairing: %g/%g/%g/%g\n",
		C.N, C.Num, C.RattleWeight, C.RotationalWeight, C.RattleRotationalWeight, C.PairingWeight)
	fmt.Fprintf(&b, "seed: %d", C.Seed)
	if C.MetricsFile != "" {
		fmt.Fprintf(&b, " metrics: %s", C.MetricsFile)
	}
	b.WriteString("\n")
	return b.String()
}

const wrap = 50

// wrapString wraps the help texts at wrap characters.
func wrapString(text string) string {
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(text) {
		if cur.Len() > 0 && cur.Len()+1+len(word) > wrap {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return strings.Join(lines, "\n")
}
