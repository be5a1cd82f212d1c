// Command nexus is the terminal storefront.
//
//	nexus login                 # prompts for username and password
//	nexus products list --search lamp --sort price-low
//	nexus cart add brass-lamp --qty 2
//	nexus checkout --name "Amina O" --phone 0712345678 --city Nairobi --address "Moi Ave"
//	nexus orders list
//	nexus admin analytics
//
// Settings come from config/app.json, $NEXUS_HOME/config.yaml, .env and the
// environment; `nexus config show` prints the effective values.
package main
