// Package console runs the text menus of the library: role selection, the student
// menu and the password protected admin menu.
//
// Every failed operation prints one line and returns to the menu it came from.
// End of input behaves like choosing Exit.
package console
