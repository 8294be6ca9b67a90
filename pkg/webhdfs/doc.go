// Package webhdfs exposes a client for the WebHDFS REST interface served by
// HDFS NameNodes (http://host:port/webhdfs/v1/<path>?op=...).
//
// Every operation is routed through a Dispatcher that applies one of four
// response strategies. CREATE and APPEND use the two-phase write: the NameNode
// answers 307 with a Location naming a DataNode, and the payload is POSTed
// there. Bodies are held fully in memory and nothing is retried.
package webhdfs
