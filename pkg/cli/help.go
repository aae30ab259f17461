package cli

import (
	"fmt"
	"io"
)

// ShowHelp prints usage.
func ShowHelp(w io.Writer) {
	fmt.Fprintf(w, "File Integrity Vault - record and verify file hashes on Ethereum\n\n")
	fmt.Fprintf(w, "Usage: fvault [global flags] <command> [args...]\n\n")

	fmt.Fprintf(w, "📄 Files:\n")
	fmt.Fprintf(w, "  hash <file>                          - Print the SHA-256 digest of a file\n")
	fmt.Fprintf(w, "  store [file] [--name n] [--hash h]   🔐 Record a file hash on chain\n")
	fmt.Fprintf(w, "  verify <hash|file>                   🔐 Check whether a hash is recorded\n")
	fmt.Fprintf(w, "  share <hash> <address>               🔐 Grant an address access to a record\n")
	fmt.Fprintf(w, "  delete <hash>                        🔐 Delete a record\n\n")

	fmt.Fprintf(w, "👛 Wallet:\n")
	fmt.Fprintf(w, "  balance                              🔐 Show the connected account and balance\n")
	fmt.Fprintf(w, "  network                              - Show the configured network\n")
	fmt.Fprintf(w, "  account new                          - Create a keystore account\n")
	fmt.Fprintf(w, "  account list                         - List keystore accounts\n\n")

	fmt.Fprintf(w, "⚙️  Configuration:\n")
	fmt.Fprintf(w, "  config init [--force] [--contract a] [--rpc-url u]\n")
	fmt.Fprintf(w, "                                       - Write a default config file\n")
	fmt.Fprintf(w, "  config show                          - Print the effective config\n")
	fmt.Fprintf(w, "  config validate                      - Check the config file\n\n")

	fmt.Fprintf(w, "🖥️  Interfaces:\n")
	fmt.Fprintf(w, "  ui                                   - Interactive terminal UI\n")
	fmt.Fprintf(w, "  serve [--listen addr] [--connect]    - Run the HTTP gateway\n\n")

	fmt.Fprintf(w, "Global Flags:\n")
	fmt.Fprintf(w, "  -c, --config <path>                  - Config file (default: ~/.filevault/config.yaml)\n")
	fmt.Fprintf(w, "  -f, --format <format>                - Output format: table, json (default: table)\n")
	fmt.Fprintf(w, "  -t, --timeout <duration>             - Operation timeout (default: 2m)\n")
	fmt.Fprintf(w, "  -y, --yes                            - Approve wallet requests without prompting\n")
	fmt.Fprintf(w, "  -v, --verbose                        - Debug logging\n\n")

	fmt.Fprintf(w, "🔐 = Requires a connected wallet\n\n")

	fmt.Fprintf(w, "Environment:\n")
	fmt.Fprintf(w, "  FILEVAULT_RPC_URL, FILEVAULT_KEYSTORE, FILEVAULT_SIGNER, FILEVAULT_PASSPHRASE\n\n")

	fmt.Fprintf(w, "Examples:\n")
	fmt.Fprintf(w, "  fvault config init --contract 0x...\n")
	fmt.Fprintf(w, "  fvault account new\n")
	fmt.Fprintf(w, "  fvault store ./report.pdf\n")
	fmt.Fprintf(w, "  fvault verify ./report.pdf\n")
}
