// Command personid resolves the canonical name and birth date behind noisy
// person keywords and folder names, and renames folders to
// "{birth} {name}".
//
//	personid resolve 山田花子
//	personid scan ~/people
//	personid scan ~/people --apply
//	personid watch ~/people --apply
//	personid history
package main
