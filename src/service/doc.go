// Package service exposes the status of an importer over HTTP.
//
//  /stats        counters of the importer and of each stream
//  /addressbook  the address book used to verify signatures
//  /watermarks   the last imported file of each stream
package service
