package symbols

import "github.com/demikernel/dpdkgen/internal/platform"

// InlineFunctions are the wrappers compiled into the inline shim. DPDK only
// defines the wrapped functions in its headers, so they have no symbol in
// the shared libraries.
var InlineFunctions = []string{
	"rte_errno_",
	"rte_eth_rx_burst_",
	"rte_eth_tx_burst_",
	"rte_get_timer_cycles_",
	"rte_get_timer_hz_",
	"rte_lcore_id_",
	"rte_mbuf_refcnt_read_",
	"rte_mbuf_refcnt_update_",
	"rte_pktmbuf_adj_",
	"rte_pktmbuf_alloc_",
	"rte_pktmbuf_chain_",
	"rte_pktmbuf_free_",
	"rte_pktmbuf_headroom_",
	"rte_pktmbuf_mtod_",
	"rte_pktmbuf_tailroom_",
	"rte_pktmbuf_trim_",
}

// Types which can't be represented by cgo because of packed layouts.
var arpBlocklist = []Rule{
	{Type, "rte_arp_ipv4", Block},
	{Type, "rte_arp_hdr", Block},
}

var linuxRules = []Rule{
	// mbufs and mempools
	{Type, "rte_mbuf", Allow},
	{Type, "rte_mempool", Allow},
	{Type, "rte_pktmbuf_pool_private", Allow},
	{Function, "rte_mempool_obj_iter", Allow},
	{Function, "rte_mempool_mem_iter", Allow},
	{Function, "rte_mempool_free", Allow},
	{Function, "rte_mempool_avail_count", Allow},
	{Function, "rte_mempool_in_use_count", Allow},
	{Function, "rte_mempool_create_empty", Allow},
	{Function, "rte_mempool_populate_default", Allow},
	{Function, "rte_pktmbuf_pool_create", Allow},
	{Function, "rte_pktmbuf_pool_init", Allow},
	{Function, "rte_pktmbuf_init", Allow},
	{Function, "rte_pktmbuf_clone", Allow},
	{Variable, "RTE_PKTMBUF_HEADROOM", Allow},
	{Variable, "RTE_MBUF_DEFAULT_BUF_SIZE", Allow},

	// EAL
	{Function, "rte_eal_init", Allow},
	{Function, "rte_strerror", Allow},
	{Function, "rte_delay_us_block", Allow},
	{Function, "rte_socket_id", Allow},

	// ethdev
	{Type, "rte_eth_conf", Allow},
	{Type, "rte_eth_txconf", Allow},
	{Type, "rte_eth_rxconf", Allow},
	{Type, "rte_eth_fc_conf", Allow},
	{Type, "rte_ether_addr", Allow},
	// The burst functions are static inline, see InlineFunctions.
	{Function, "rte_eth_dev_socket_id", Allow},
	{Function, "rte_eth_rx_queue_setup", Allow},
	{Function, "rte_eth_tx_queue_setup", Allow},
	{Function, "rte_eth_dev_start", Allow},
	{Function, "rte_eth_dev_flow_ctrl_get", Allow},
	{Function, "rte_eth_dev_flow_ctrl_set", Allow},
	{Function, "rte_eth_dev_count_avail", Allow},
	{Function, "rte_eth_dev_configure", Allow},
	{Function, "rte_eth_dev_get_mtu", Allow},
	{Function, "rte_eth_dev_set_mtu", Allow},
	{Function, "rte_eth_promiscuous_enable", Allow},
	{Function, "rte_eth_dev_is_valid_port", Allow},
	{Function, "rte_eth_link_get_nowait", Allow},
	{Function, "rte_eth_find_next_owned_by", Allow},
	{Function, "rte_eth_dev_info_get", Allow},
	{Function, "rte_eth_macaddr_get", Allow},
	{Variable, "RTE_ETHER_MAX_JUMBO_FRAME", Allow},
	{Variable, "RTE_ETHER_MAX_JUMBO_FRAME_LEN", Allow},
	{Variable, "RTE_ETHER_MAX_LEN", Allow},
	{Variable, "RTE_ETH_LINK_UP", Allow},
	{Variable, "RTE_ETH_LINK_FULL_DUPLEX", Allow},
	{Variable, "RTE_ETH_RX_OFFLOAD_IPV4_CKSUM", Allow},
	{Variable, "RTE_ETH_RX_OFFLOAD_TCP_CKSUM", Allow},
	{Variable, "RTE_ETH_RX_OFFLOAD_UDP_CKSUM", Allow},
	{Variable, "RTE_ETH_TX_OFFLOAD_TCP_CKSUM", Allow},
	{Variable, "RTE_ETH_TX_OFFLOAD_UDP_CKSUM", Allow},
	{Variable, "RTE_ETH_DEV_NO_OWNER", Allow},
	{Variable, "RTE_ETH_RSS_IP", Allow},
	{Variable, "RTE_MAX_ETHPORTS", Allow},
	{Variable, "RTE_ETH_MQ_RX_RSS", Allow},
	{Variable, "RTE_ETH_MQ_TX_NONE", Allow},
}

// Windows headers pull in TLS directory structs with alignment cgo rejects.
var windowsBlocklist = []Rule{
	{Type, "IMAGE_TLS_DIRECTORY", Block},
	{Type, "PIMAGE_TLS_DIRECTORY", Block},
	{Type, "PIMAGE_TLS_DIRECTORY64", Block},
	{Type, "IMAGE_TLS_DIRECTORY64", Block},
	{Type, "_IMAGE_TLS_DIRECTORY64", Block},
}

func inlineRules() []Rule {
	rules := make([]Rule, 0, len(InlineFunctions))
	for _, name := range InlineFunctions {
		rules = append(rules, Rule{Function, name, Allow})
	}
	return rules
}

// Linux returns the curated policy used on Linux.
//
// Only the listed API surface and the types it depends on are exposed.
func Linux() *Policy {
	var rules []Rule
	rules = append(rules, linuxRules...)
	rules = append(rules, inlineRules()...)
	rules = append(rules, arpBlocklist...)
	return &Policy{rules, true}
}

// Windows returns the policy used on Windows.
//
// It has no allowlist: everything declared by the headers is exposed, apart
// from the blocked types. Types are not expanded recursively.
func Windows() *Policy {
	var rules []Rule
	rules = append(rules, arpBlocklist...)
	rules = append(rules, windowsBlocklist...)
	return &Policy{rules, false}
}

// ForPlatform returns the policy for a GOOS.
func ForPlatform(goos string) *Policy {
	if goos == platform.Windows {
		return Windows()
	}
	return Linux()
}
