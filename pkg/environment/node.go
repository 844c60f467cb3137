package environment

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arbal/LISAv2/pkg/osinfo"
	"github.com/arbal/LISAv2/pkg/schema"
	"github.com/arbal/LISAv2/pkg/transports"
	sshshell "github.com/arbal/LISAv2/pkg/transports/ssh"
)

// Node is one concrete machine of an environment.
type Node struct {
	// Name identifies the node inside its environment.
	Name string

	// NicCount is the number of network interfaces.
	NicCount int

	// Features are the capability feature names the node offers.
	Features []string

	// OS is the node's operating system classifier.
	OS *osinfo.OS

	// Shell is the command transport bound to the node.
	Shell transports.Shell
}

// NewNodeFromConfig materializes a node from a runbook entry, binding the
// configured transport.
func NewNodeFromConfig(cfg schema.NodeConfig, log zerolog.Logger) (*Node, error) {
	os := osinfo.Linux
	if cfg.OS != "" {
		resolved, err := osinfo.Lookup(cfg.OS)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", cfg.Name, err)
		}
		os = resolved
	}

	features := make([]string, 0, len(cfg.Features))
	for _, name := range cfg.Features {
		canonical := strings.ToLower(name)
		if !IsKnownFeature(canonical) {
			log.Warn().Str("node", cfg.Name).Str("feature", name).
				Strs("known", KnownFeatures()).
				Msg("unknown feature name, it will not match any requirement")
		}
		features = append(features, canonical)
	}

	node := &Node{
		Name:     cfg.Name,
		NicCount: cfg.NicCount,
		Features: features,
		OS:       os,
	}

	switch cfg.Type {
	case "local":
		node.Shell = transports.NewLocalShell(log)
	case "ssh":
		shell, err := sshshell.NewShell(&sshshell.Config{
			Host:           cfg.Address,
			Port:           cfg.Port,
			User:           cfg.Username,
			Password:       cfg.Password,
			PrivateKeyPath: cfg.PrivateKeyFile,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", cfg.Name, err)
		}
		node.Shell = shell
	default:
		return nil, fmt.Errorf("node %q: unknown transport type %q", cfg.Name, cfg.Type)
	}

	return node, nil
}

// Close releases the node's transport.
func (n *Node) Close() error {
	if n.Shell == nil {
		return nil
	}
	return n.Shell.Close()
}
