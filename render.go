package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/shubhamkhetanbtc/vertex-ai-creative-studio/infra"
)

// runRender prints the generated terraform.tfvars and app env file without
// touching the cloud. -write persists them into the terraform directory,
// exactly as deploy would.
func runRender(args []string) {
	fs := flag.NewFlagSet("studioctl render", flag.ExitOnError)
	pConfigPath := fs.String("config", "", "Path to config.json")
	pWrite := fs.Bool("write", false, "Write the files into the terraform directory instead of printing")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: studioctl render [flags]\n\nRender the generated configuration from config.json.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	if err := loadConfig(*pConfigPath); err != nil {
		log.Fatalf("config error: %v", err)
	}

	c := newInfraConfig()

	if *pWrite {
		if err := infra.WriteGeneratedConfig(c, cfg.TerraformDir); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	tfvars, err := infra.RenderTfvars(c)
	if err != nil {
		log.Fatalf("%v", err)
	}
	env, err := infra.RenderEnv(c)
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Println("# terraform.tfvars")
	fmt.Print(tfvars)
	fmt.Println()
	fmt.Println("# app.env")
	fmt.Print(env)
}
