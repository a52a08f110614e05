/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/dnsflux/InputParameters"
	"github.com/notargets/dnsflux/model_problems/DNS3D"
	"github.com/notargets/dnsflux/output"
)

type ModelDNS struct {
	ICFile    string
	CaseDir   string
	ProcLimit int
	Restart   bool
	Verbose   bool
}

const exampleFile = `
########################################
Title: "Forced box"
Viscosity: 0.01
ForcingCorrelationTime: 0.5
ForcingAmplitude: 1.
ForcingKLower: 1      # Forced shell in units of 2 pi / L
ForcingKUpper: 3
ForcingScheme: exact  # Can be "euler"
ForcingProjection: project # Can be "cross"
Seed: 1
NCorrectors: 3
TimeStep: 0.001
EndTime: 1.
WriteInterval: 0.1
Cells: [16, 16, 16]
BoxLength: [1., 1., 1.]
Walls: [false, false, false]
########################################
`

// DNSCmd represents the DNS command
var DNSCmd = &cobra.Command{
	Use:   "DNS",
	Short: "Forced turbulence in a box, writes fields, spectra and statistics to a case directory",
	Long: `
Solves the incompressible Navier-Stokes equations in a box with the PISO
algorithm, forced by an Ornstein-Uhlenbeck process on a shell of Fourier modes.

dnsflux DNS -I input.yaml -C myCase`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		md := &ModelDNS{}
		if md.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			return
		}
		md.CaseDir, _ = cmd.Flags().GetString("caseDir")
		md.ProcLimit, _ = cmd.Flags().GetInt("procLimit")
		md.Restart, _ = cmd.Flags().GetBool("restart")
		md.Verbose, _ = cmd.Flags().GetBool("verbose")
		if len(md.ICFile) == 0 {
			fmt.Printf("Example File:%s\n", exampleFile)
			return fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile)")
		}
		var ip *InputParameters.InputParametersDNS
		if ip, err = processInput(md.ICFile, settings); err != nil {
			return
		}
		if cmd.Flags().Changed("procLimit") {
			ip.ProcLimit = md.ProcLimit
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return RunDNS(ctx, md, ip)
	},
}

func init() {
	rootCmd.AddCommand(DNSCmd)
	DNSCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- Viscosity\n\t- Forcing shell and amplitude")
	DNSCmd.Flags().StringP("caseDir", "C", ".", "case directory for fields, graphs and time series")
	DNSCmd.Flags().IntP("procLimit", "p", 0, "maximum number of parallel processes, default is no limit")
	DNSCmd.Flags().BoolP("restart", "r", false, "continue from the latest checkpoint in the case directory")
	DNSCmd.Flags().BoolP("verbose", "v", false, "print solver performance for every step")
}

// overrides collects the input keys set in the config file or environment
func overrides(v *viper.Viper) (ov map[string]interface{}) {
	ov = make(map[string]interface{})
	for _, key := range InputParameters.Keys {
		if v.IsSet(key) {
			ov[key] = v.Get(key)
		}
	}
	return
}

func processInput(file string, v *viper.Viper) (ip *InputParameters.InputParametersDNS, err error) {
	var data []byte
	if data, err = os.ReadFile(file); err != nil {
		return
	}
	ip = &InputParameters.InputParametersDNS{}
	if err = ip.Parse(data); err != nil {
		return
	}
	if err = ip.ApplyOverrides(overrides(v)); err != nil {
		return
	}
	ip.SetDefaults()
	if err = ip.Validate(); err != nil {
		return
	}
	ip.Print()
	return
}

func RunDNS(ctx context.Context, md *ModelDNS, ip *InputParameters.InputParametersDNS) (err error) {
	var (
		cd *output.CaseDir
		c  *DNS3D.DNS
	)
	if cd, err = output.NewCaseDir(md.CaseDir); err != nil {
		return
	}
	defer cd.Close()
	if c, err = DNS3D.NewDNS(ip, cd, md.Verbose); err != nil {
		return
	}
	if md.Restart {
		if _, err = c.Restart(cd); err != nil {
			return
		}
	}
	return c.Solve(ctx)
}
